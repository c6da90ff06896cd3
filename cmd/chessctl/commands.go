package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/multiplayer-chess/game/engine"
	"github.com/wricardo/multiplayer-chess/game/multiplayer"
	"github.com/wricardo/multiplayer-chess/game/service"
	chessgrpc "github.com/wricardo/multiplayer-chess/transport/grpc"
	chessnats "github.com/wricardo/multiplayer-chess/transport/nats"
)

// dialFunc opens a session service at addr and returns a function that
// releases it.
type dialFunc func(ctx context.Context, addr string) (service.SessionService, func() error, error)

func dialGRPC(ctx context.Context, addr string) (service.SessionService, func() error, error) {
	client, err := chessgrpc.Dial(addr)
	if err != nil {
		return nil, nil, err
	}
	return client, client.Close, nil
}

type cliApp struct {
	out    io.Writer
	dial   dialFunc
	oracle *engine.ChessOracle
}

// newCommand builds the chessctl command tree. Output goes to out.
func newCommand(out io.Writer, dial dialFunc) *cli.Command {
	a := &cliApp{out: out, dial: dial, oracle: engine.NewChessOracle()}

	return &cli.Command{
		Name:   "chessctl",
		Usage:  "play multiplayer chess over gRPC",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Value:   "localhost:9090",
				Usage:   "gRPC server address",
				Sources: cli.EnvVars("CHESS_GRPC_ADDR"),
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "print raw JSON responses",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "create a game hosted by <host>",
				ArgsUsage: "<host>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "preset", Usage: "start-position preset"},
				},
				Action: a.withService(1, func(ctx context.Context, cmd *cli.Command, svc service.SessionService) error {
					game, err := svc.CreateGame(ctx, cmd.Args().Get(0), cmd.String("preset"))
					if err != nil {
						return err
					}
					return a.print(cmd, game, func() { a.printGame(game) })
				}),
			},
			{
				Name:      "accept",
				Usage:     "join a game as its guest",
				ArgsUsage: "<game> <player>",
				Action: a.withService(2, func(ctx context.Context, cmd *cli.Command, svc service.SessionService) error {
					game, err := svc.AcceptGame(ctx, cmd.Args().Get(0), cmd.Args().Get(1))
					if err != nil {
						return err
					}
					return a.print(cmd, game, func() { a.printGame(game) })
				}),
			},
			{
				Name:      "move",
				Usage:     "play a move in UCI notation",
				ArgsUsage: "<game> <player> <move>",
				Action: a.withService(3, func(ctx context.Context, cmd *cli.Command, svc service.SessionService) error {
					args := cmd.Args()
					result, err := svc.PushMove(ctx, args.Get(0), args.Get(1), args.Get(2))
					if err != nil {
						return err
					}
					return a.print(cmd, result, func() {
						fmt.Fprintf(a.out, "Played %s\n", result.Move)
						a.printGame(result.Game)
					})
				}),
			},
			{
				Name:      "undo",
				Usage:     "take back your last move",
				ArgsUsage: "<game> <player>",
				Action: a.withService(2, func(ctx context.Context, cmd *cli.Command, svc service.SessionService) error {
					game, err := svc.PushUndo(ctx, cmd.Args().Get(0), cmd.Args().Get(1))
					if err != nil {
						return err
					}
					return a.print(cmd, game, func() { a.printGame(game) })
				}),
			},
			{
				Name:      "forfeit",
				Aliases:   []string{"gg"},
				Usage:     "resign a game",
				ArgsUsage: "<game> <player>",
				Action: a.withService(2, func(ctx context.Context, cmd *cli.Command, svc service.SessionService) error {
					game, err := svc.Forfeit(ctx, cmd.Args().Get(0), cmd.Args().Get(1))
					if err != nil {
						return err
					}
					return a.print(cmd, game, func() { a.printGame(game) })
				}),
			},
			{
				Name:      "board",
				Usage:     "show the current position",
				ArgsUsage: "<game>",
				Action: a.withService(1, func(ctx context.Context, cmd *cli.Command, svc service.SessionService) error {
					board, err := svc.PullBoardState(ctx, cmd.Args().Get(0))
					if err != nil {
						return err
					}
					return a.print(cmd, board, func() { a.printBoard(board) })
				}),
			},
			{
				Name:      "state",
				Usage:     "show players, state and moves of a game",
				ArgsUsage: "<game>",
				Action: a.withService(1, func(ctx context.Context, cmd *cli.Command, svc service.SessionService) error {
					game, err := svc.PullGameState(ctx, cmd.Args().Get(0))
					if err != nil {
						return err
					}
					return a.print(cmd, game, func() { a.printGame(game) })
				}),
			},
			{
				Name:  "list",
				Usage: "list games",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "state", Usage: "only games in this state (awaiting_opponent, in_progress, finished)"},
					&cli.BoolFlag{Name: "ids", Usage: "print game ids only"},
				},
				Action: a.withService(0, a.list),
			},
			{
				Name:      "moves",
				Usage:     "show the move history",
				ArgsUsage: "<game>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "page", Value: 1},
					&cli.IntFlag{Name: "limit", Value: 20},
					&cli.StringFlag{Name: "order", Value: "asc", Usage: "asc or desc"},
				},
				Action: a.withService(1, func(ctx context.Context, cmd *cli.Command, svc service.SessionService) error {
					history, err := svc.PullMoves(ctx, cmd.Args().Get(0), service.HistoryOptions{
						Page:  cmd.Int("page"),
						Limit: cmd.Int("limit"),
						Order: cmd.String("order"),
					})
					if err != nil {
						return err
					}
					return a.print(cmd, history, func() { a.printHistory(history) })
				}),
			},
			{
				Name:      "legal",
				Usage:     "list legal moves for the player to move",
				ArgsUsage: "<game>",
				Action: a.withService(1, func(ctx context.Context, cmd *cli.Command, svc service.SessionService) error {
					moves, err := svc.LegalMoves(ctx, cmd.Args().Get(0))
					if err != nil {
						return err
					}
					return a.print(cmd, moves, func() {
						fmt.Fprintf(a.out, "%d legal moves: %s\n", len(moves), strings.Join(moves, " "))
					})
				}),
			},
			{
				Name:  "chat",
				Usage: "send or read game chat",
				Commands: []*cli.Command{
					{
						Name:      "send",
						ArgsUsage: "<game> <sender> <text...>",
						Action: a.withService(3, func(ctx context.Context, cmd *cli.Command, svc service.SessionService) error {
							args := cmd.Args().Slice()
							msg, err := svc.SendChat(ctx, args[0], args[1], strings.Join(args[2:], " "))
							if err != nil {
								return err
							}
							return a.print(cmd, msg, func() { a.printChat([]multiplayer.ChatMessage{*msg}) })
						}),
					},
					{
						Name:      "read",
						ArgsUsage: "<game>",
						Action: a.withService(1, func(ctx context.Context, cmd *cli.Command, svc service.SessionService) error {
							messages, err := svc.PullChat(ctx, cmd.Args().Get(0))
							if err != nil {
								return err
							}
							return a.print(cmd, messages, func() { a.printChat(messages) })
						}),
					},
				},
			},
			{
				Name:  "presets",
				Usage: "list start-position presets",
				Action: a.withService(0, func(ctx context.Context, cmd *cli.Command, svc service.SessionService) error {
					presets, err := svc.ListPresets(ctx)
					if err != nil {
						return err
					}
					return a.print(cmd, presets, func() {
						for _, p := range presets {
							fmt.Fprintf(a.out, "%-20s %s\n", p.PresetID, p.Name)
						}
					})
				}),
			},
			{
				Name:      "watch",
				Usage:     "follow game events published to NATS",
				ArgsUsage: "[game]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "nats-url", Value: "nats://localhost:4222", Sources: cli.EnvVars("NATS_URL")},
					&cli.StringFlag{Name: "prefix", Value: chessnats.DefaultPrefix, Sources: cli.EnvVars("NATS_SUBJECT_PREFIX")},
				},
				Action: a.watch,
			},
		},
	}
}

// withService checks the argument count, dials the server and runs fn.
func (a *cliApp) withService(nargs int, fn func(context.Context, *cli.Command, service.SessionService) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		if cmd.NArg() < nargs {
			return fmt.Errorf("%s: expected %s", cmd.Name, cmd.ArgsUsage)
		}
		svc, closeFn, err := a.dial(ctx, cmd.String("addr"))
		if err != nil {
			return err
		}
		defer closeFn()
		return fn(ctx, cmd, svc)
	}
}

func (a *cliApp) list(ctx context.Context, cmd *cli.Command, svc service.SessionService) error {
	if cmd.Bool("ids") {
		ids, err := svc.ListGames(ctx)
		if err != nil {
			return err
		}
		return a.print(cmd, ids, func() {
			for _, id := range ids {
				fmt.Fprintln(a.out, id)
			}
		})
	}

	summaries, err := svc.ListGameSummaries(ctx)
	if err != nil {
		return err
	}
	if state := cmd.String("state"); state != "" {
		filtered := summaries[:0]
		for _, s := range summaries {
			if string(s.State) == state {
				filtered = append(filtered, s)
			}
		}
		summaries = filtered
	}
	return a.print(cmd, summaries, func() {
		if len(summaries) == 0 {
			fmt.Fprintln(a.out, "No games")
			return
		}
		for _, s := range summaries {
			guest := s.Guest
			if guest == "" {
				guest = "-"
			}
			fmt.Fprintf(a.out, "%s  %s vs %s  %s  %d moves\n", s.ID, s.Host, guest, s.State, s.MoveCount)
		}
	})
}

func (a *cliApp) watch(ctx context.Context, cmd *cli.Command) error {
	nc, err := chessnats.Connect(cmd.String("nats-url"), "chessctl")
	if err != nil {
		return err
	}
	defer nc.Close()

	gameID := cmd.Args().First()
	sub, err := chessnats.Subscribe(nc, cmd.String("prefix"), gameID, func(ev service.Event) {
		a.printEvent(cmd, ev)
	})
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	defer sub.Unsubscribe()

	if gameID == "" {
		fmt.Fprintln(a.out, "Watching all games (Ctrl-C to stop)")
	} else {
		fmt.Fprintf(a.out, "Watching game %s (Ctrl-C to stop)\n", gameID)
	}
	<-ctx.Done()
	return nil
}

// print writes v as indented JSON when --json is set, otherwise runs text.
func (a *cliApp) print(cmd *cli.Command, v any, text func()) error {
	if cmd.Bool("json") {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text()
	return nil
}

func (a *cliApp) printGame(game *service.GameInfo) {
	fmt.Fprintf(a.out, "Game %s [%s]\n", game.ID, game.State)
	fmt.Fprintf(a.out, "White: %s\n", game.Host)
	if game.Guest != "" {
		fmt.Fprintf(a.out, "Black: %s\n", game.Guest)
	} else {
		fmt.Fprintln(a.out, "Black: (waiting for opponent)")
	}
	if len(game.Moves) > 0 {
		fmt.Fprintf(a.out, "Moves: %s\n", strings.Join(game.Moves, " "))
	}
	switch {
	case game.State == multiplayer.Finished && game.Winner != "":
		fmt.Fprintf(a.out, "Game over (%s), winner: %s\n", game.EndReason, game.Winner)
	case game.State == multiplayer.Finished:
		fmt.Fprintf(a.out, "Game over (%s), no winner\n", game.EndReason)
	case game.Turn != "":
		fmt.Fprintf(a.out, "To move: %s\n", game.Turn)
	}
}

func (a *cliApp) printBoard(board *service.BoardState) {
	if diagram, err := a.oracle.Diagram(board.Position); err == nil {
		fmt.Fprint(a.out, diagram)
	}
	fmt.Fprintf(a.out, "FEN: %s\n", board.Position)
	fmt.Fprintf(a.out, "Status: %s\n", board.Status)
	if board.Turn != "" {
		fmt.Fprintf(a.out, "To move: %s\n", board.Turn)
	}
}

func (a *cliApp) printHistory(history *service.HistoryResponse) {
	if len(history.Moves) == 0 {
		fmt.Fprintln(a.out, "No moves yet")
		return
	}
	for _, m := range history.Moves {
		fmt.Fprintf(a.out, "%d. %s (%s) %s\n", m.Number, m.Move, m.Color, m.Player)
	}
	fmt.Fprintf(a.out, "Page %d/%d, %d moves total\n", history.Page, history.TotalPages, history.TotalMoves)
}

func (a *cliApp) printChat(messages []multiplayer.ChatMessage) {
	if len(messages) == 0 {
		fmt.Fprintln(a.out, "No messages")
		return
	}
	for _, m := range messages {
		fmt.Fprintf(a.out, "[%s] %s: %s\n", m.SentAt.Format("15:04:05"), m.Sender, m.Text)
	}
}

func (a *cliApp) printEvent(cmd *cli.Command, ev service.Event) {
	if cmd.Bool("json") {
		a.print(cmd, ev, nil)
		return
	}
	line := fmt.Sprintf("%s %s %s", ev.Timestamp.Format("15:04:05"), ev.GameID, ev.Type)
	if ev.Player != "" {
		line += " by " + ev.Player
	}
	if ev.Move != "" {
		line += ": " + ev.Move
	}
	if ev.Chat != nil {
		line += ": " + ev.Chat.Text
	}
	fmt.Fprintln(a.out, line)
}
