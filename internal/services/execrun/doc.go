// Package execrun runs the external engines (speech recognition, video
// encoder) behind one injectable Runner capability.
//
// ExecRunner starts each command in its own process group and kills the whole
// group when the context ends, so no engine outlives the request that started
// it. Tests substitute a RunnerFunc to count invocations or fake output.
package execrun
