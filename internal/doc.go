// internal is the private packages of Argus.
//
// The monitor package is the shared vocabulary and depends on nothing else
// here; argerr and meta sit in the same leaf position. The pipeline
// packages prefer function values and small interfaces over importing each
// other, like store.SaveFunc and scheduler.CheckFunc. The manager package
// composes the pipeline; server and cmd/argus consume the composition.
package internal
