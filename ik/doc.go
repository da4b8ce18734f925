// Package ik provides a multi-chain FABRIK inverse-kinematics solver.
//
// A Structure owns one or more Chains of rigid Bones. Each chain is either anchored
// at a fixed origin or rigidly attached to a bone of another chain. Solve runs the
// chains in dependency order, alternating target-to-root and root-to-target passes
// over each chain while projecting bone directions onto their joint constraints.
//
// The package is synchronous and allocation-light: no goroutines, no logging, no I/O.
// Diagnostics are delivered through an injected Observer.
package ik
