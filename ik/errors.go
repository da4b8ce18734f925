package ik

import "errors"

// Configuration errors, wrapped with context and matched with errors.Is
var (
	ErrNoChains       = errors.New("structure has no chains")
	ErrNoBones        = errors.New("chain has no bones")
	ErrDuplicateChain = errors.New("duplicate chain name")
	ErrUnknownChain   = errors.New("unknown chain")
	ErrBoneIndex      = errors.New("bone index out of range")
	ErrCycle          = errors.New("chain connections form a cycle")
	ErrJoint          = errors.New("invalid joint")
	ErrBone           = errors.New("invalid bone")
	ErrConstraint     = errors.New("invalid base constraint")
	ErrSolver         = errors.New("invalid solver settings")
)
