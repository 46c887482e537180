package layout

// Scalar is the storage of one scalar type.
type Scalar struct {
	Size  int
	Align int
}

// Target is the ABI the engine lays types out for.
type Target struct {
	Triple  string
	Pointer Scalar
	I64     Scalar
	Bool    Scalar // i1 occupies a whole byte in memory
}

// X86_64LinuxGNU is the only target the VM executes.
func X86_64LinuxGNU() Target {
	return Target{
		Triple:  "x86_64-linux-gnu",
		Pointer: Scalar{Size: 8, Align: 8},
		I64:     Scalar{Size: 8, Align: 8},
		Bool:    Scalar{Size: 1, Align: 1},
	}
}
