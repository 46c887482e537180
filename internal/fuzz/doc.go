// Package fuzztests houses Go fuzz harnesses for the script front end and
// the build pipeline. Arbitrary bytes go through script.Parse; every
// script the parser accepts must lower, validate and run without an
// internal compiler error.
package fuzztests
