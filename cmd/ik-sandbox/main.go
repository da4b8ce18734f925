// Command ik-sandbox drives a rig interactively in the terminal
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/fabrik/rig"
)

const (
	logDir      = "logs"
	logFileName = "ik-sandbox.log"
	maxLogSize  = 10 * 1024 * 1024
)

// setupLogging sends the standard logger to logs/ when debug is set, otherwise discards it
// The terminal owns stdout and stderr while the sandbox runs
func setupLogging(debug bool) *os.File {
	if !debug {
		log.SetOutput(io.Discard)
		return nil
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		log.SetOutput(io.Discard)
		return nil
	}

	logPath := filepath.Join(logDir, logFileName)
	if info, err := os.Stat(logPath); err == nil && info.Size() > maxLogSize {
		rotated := filepath.Join(logDir, fmt.Sprintf("ik-sandbox-%s.log", time.Now().Format("20060102-150405")))
		_ = os.Rename(logPath, rotated)
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.SetOutput(io.Discard)
		return nil
	}
	log.SetOutput(f)
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	return f
}

func loadRig(arg string) (*rig.Definition, error) {
	if filepath.Ext(arg) == "" {
		return rig.Preset(arg)
	}
	return rig.Load(arg)
}

func main() {
	rigArg := flag.String("rig", "humanoid", "rig file or preset name")
	fps := flag.Int("fps", 30, "solves and redraws per second")
	mute := flag.Bool("mute", false, "disable the reach chime")
	debug := flag.Bool("debug", false, "write a debug log to logs/")
	flag.Parse()

	if logFile := setupLogging(*debug); logFile != nil {
		defer logFile.Close()
	}

	def, err := loadRig(*rigArg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load rig: %v\n", err)
		os.Exit(1)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create screen: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize screen: %v\n", err)
		os.Exit(1)
	}

	var snd *chime
	if !*mute {
		if snd, err = newChime(); err != nil {
			log.Printf("audio disabled: %v", err)
		}
	}

	sb, err := newSandbox(screen, def, snd)
	if err != nil {
		screen.Fini()
		fmt.Fprintf(os.Stderr, "Failed to build rig: %v\n", err)
		os.Exit(1)
	}

	defer func() {
		if r := recover(); r != nil {
			screen.Fini()
			log.Printf("panic: %v", r)
			panic(r)
		}
	}()

	sb.run(time.Second / time.Duration(max(*fps, 1)))
	snd.close()
	screen.Fini()
}
