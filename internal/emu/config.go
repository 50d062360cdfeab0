package emu

// Config contains settings that affect how the machine runs.
type Config struct {
	Trace    bool // log every executed instruction on the CPU channel
	PostBoot bool // start from DMG post-boot register values
}
