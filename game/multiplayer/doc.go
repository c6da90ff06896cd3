// Package multiplayer wraps a single rules-engine game with the two-player
// session around it: who hosts, who joined, whose turn it is, the chat
// log and how the game ended.
//
// Every operation that can be refused returns an *Error whose Code names
// the reason:
//
//	g, _ := multiplayer.New("g1", "alice", engineGame)
//	_ = g.Join("bob")
//	err := g.Move("bob", "e7e5")
//	multiplayer.CodeOf(err) // NOT_YOUR_TURN
//
// A Game is not safe for concurrent use. Stores serialize access and hand
// out clones.
package multiplayer
