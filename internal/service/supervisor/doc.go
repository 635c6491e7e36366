// Package supervisor runs the cached installer as a child process.
//
// The child shares the standard streams of this process and is waited for
// synchronously. Only a zero exit status counts as success.
package supervisor
