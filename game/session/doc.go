// Package session provides the game stores behind the session service.
//
// The session package implements:
//   - MemoryStore, an in-process store guarded by a single mutex
//   - RedisStore, a shared store using optimistic WATCH transactions
//   - FilePersistence, JSON snapshots that let MemoryStore survive restarts
//
// Both stores satisfy service.GameStore. They never hand out the stored
// *multiplayer.Game; callers always receive a clone, and mutations go
// through Update so a read-modify-write on one game cannot interleave with
// another.
//
// Persistence:
//
// Games are stored as multiplayer.Snapshot values: the start position, the
// move list and the session metadata. Loading replays the moves through
// the oracle, so a stored game is only accepted if every move is still
// legal.
//
// Usage:
//
//	persistence, err := session.NewFilePersistence("snapshots")
//	if err != nil {
//		log.Fatal(err)
//	}
//	store := session.NewMemoryStoreWithPersistence(persistence)
//	if err := store.LoadPersisted(engine.NewChessOracle()); err != nil {
//		log.Printf("Warning: %v", err)
//	}
//
//	g, err := store.Update(ctx, id, func(g *multiplayer.Game) error {
//		return g.Join("bob")
//	})
package session
