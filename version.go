package pp

// Version and BuildDate identify a build of the library and its tools.
// Release builds overwrite both through the linker:
//
//	go build -ldflags "-X github.com/jachrispens/red-sea-pp.BuildDate=$(date -u +%Y-%m-%d)"
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
)
