// Package script implements presentation scripts: an ordered list of steps,
// each replaying a few network commands when the presenter asks for the next one.
//
// Scripts usually come from YAML or JSON, where every step is a list whose
// optional first element is a label and whose other elements are
// {cmd, args} maps:
//
//	- - "Alice opens a channel to Bob"
//	  - {cmd: ADD_CHANNEL, args: [{source: alice, target: bob, sourceBalance: 5}]}
//	  - {cmd: MOVE_BEADS, args: [alice, bob, 2, true]}
//
// Raw steps are decoded into typed commands by NewPlayer, which validates
// the command name, the argument count and the argument types.
package script
