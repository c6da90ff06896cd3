// Package nats publishes game events to a NATS server.
//
// Publisher implements service.Notifier. Each stored change is sent as the
// JSON encoded service.Event on the subject
//
//	chess.games.<game id>.<event>
//
// so subscribers can follow one game with chess.games.<id>.> or every game
// with chess.games.>. Subscribe wraps that for Go consumers.
package nats
