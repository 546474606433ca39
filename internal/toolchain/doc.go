// Package toolchain invokes the external framework compiler and module
// bundler. Commands are configured as a binary plus argument templates whose
// {placeholder} tokens are filled per invocation; failures carry the
// command's diagnostics and are tagged with ErrToolFailed.
package toolchain
