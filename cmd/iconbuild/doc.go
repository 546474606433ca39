// Package main hosts the iconbuild CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once per invocation and hands
// it to the internal packages: buildrun drives full builds and the hidden
// worker mode, the ledger backs run history, and deps checks the external
// toolchain. Add behavior to the internal packages first and surface it here
// through commands or flags.
package main
