// Package engine runs a Pythagoras Dungeon session: the state machine over
// GameState, combat resolution, the shop and the answer countdown.
//
// ARCHITECTURAL RULE: the Engine is the only writer of GameState. Views read
// deep copies through GameState, BossTimer or Snapshot and talk back through
// commands. Every transition is appended to the events.EventLog.
package engine
