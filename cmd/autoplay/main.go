// Package main - autoplay
// A WebSocket bot that plays one full run against a dungeon server.
// Handy for smoke-testing a deployment and for watching the pacing live.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/websocket"

	"github.com/pythagorasdungeon/server/internal/domain/game"
	"github.com/pythagorasdungeon/server/internal/domain/item"
	"github.com/pythagorasdungeon/server/internal/domain/question"
	"github.com/pythagorasdungeon/server/internal/engine"
	"github.com/pythagorasdungeon/server/internal/network"
)

// Config for the bot
type Config struct {
	ServerURL string
	Name      string
	Accuracy  float64 // chance of answering correctly
	Timeout   time.Duration
}

// Stats tracks what the bot did during the run.
type Stats struct {
	CommandsSent  int
	Correct       int
	Wrong         int
	ItemsBought   []string
	StatesSeen    int
	FinalSnapshot *engine.Snapshot
	Started       time.Time
}

func main() {
	serverURL := flag.String("url", "ws://localhost:8080/ws", "WebSocket server URL")
	name := flag.String("name", "Autoplay", "hero name")
	accuracy := flag.Float64("accuracy", 0.9, "probability of answering correctly (0-1)")
	timeout := flag.Duration("timeout", 5*time.Minute, "give up after this long")
	flag.Parse()

	config := Config{
		ServerURL: *serverURL,
		Name:      *name,
		Accuracy:  *accuracy,
		Timeout:   *timeout,
	}

	fmt.Println("=========================================")
	fmt.Println("PYTHAGORAS DUNGEON - Autoplay")
	fmt.Println("=========================================")
	fmt.Printf("Server:   %s\n", config.ServerURL)
	fmt.Printf("Accuracy: %.0f%%\n", config.Accuracy*100)
	fmt.Printf("Timeout:  %v\n", config.Timeout)
	fmt.Println("=========================================")

	ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		fmt.Println("\nInterrupt received, stopping...")
		cancel()
	}()

	stats, err := play(ctx, config)
	if err != nil {
		log.Printf("Run aborted: %v", err)
	}
	printResults(stats)
	if err != nil {
		os.Exit(1)
	}
}

// bot holds the per-connection decision state.
type bot struct {
	conn   *websocket.Conn
	config Config
	stats  *Stats

	pending      bool   // a command is in flight; wait for its result
	lastRevision uint64 // newest state acted on
}

func play(ctx context.Context, config Config) (*Stats, error) {
	stats := &Stats{Started: time.Now()}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, config.ServerURL, nil)
	if err != nil {
		return stats, fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close()

	// Unblock ReadMessage when the run is cancelled.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	b := &bot{conn: conn, config: config, stats: stats}
	if err := b.send(network.Command{Type: network.CommandSetName, Name: config.Name}); err != nil {
		return stats, err
	}
	if err := b.send(network.Command{Type: network.CommandNewGame}); err != nil {
		return stats, err
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return stats, fmt.Errorf("run did not finish: %w", ctx.Err())
			}
			return stats, fmt.Errorf("failed to read from server: %w", err)
		}

		var msg network.ServerMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return stats, fmt.Errorf("failed to decode server message: %w", err)
		}

		switch msg.Type {
		case "result":
			b.pending = false
			if msg.Result != nil && msg.Result.Error != "" {
				return stats, fmt.Errorf("server rejected %q: %s", msg.Result.Command, msg.Result.Error)
			}
		case "state":
			if msg.State == nil {
				continue
			}
			stats.StatesSeen++
			stats.FinalSnapshot = msg.State
			if msg.State.GameState.GameStatus.IsTerminal() && !b.pending {
				return stats, nil
			}
			if err := b.act(*msg.State); err != nil {
				return stats, err
			}
		}
	}
}

// act sends at most one command for snap.
func (b *bot) act(snap engine.Snapshot) error {
	if b.pending || snap.Revision <= b.lastRevision {
		return nil
	}
	gs := snap.GameState

	switch gs.GameStatus {
	case game.StatusMenu:
		// Still waiting on new_game; the set_name reply lands here first.
		return nil
	case game.StatusCombat:
		if gs.CurrentQuestion == nil || gs.CurrentEnemy == nil {
			return nil // pause between battles
		}
		// State frames carry no answer; work it out like a player would.
		answer, err := question.Solve(gs.CurrentQuestion.Question)
		if err != nil {
			return fmt.Errorf("failed to solve %q: %w", gs.CurrentQuestion.Question, err)
		}
		if rand.Float64() >= b.config.Accuracy {
			answer++
			b.stats.Wrong++
		} else {
			b.stats.Correct++
		}
		b.lastRevision = snap.Revision
		return b.send(network.Command{Type: network.CommandAnswer, Value: &answer})
	case game.StatusMerchant:
		b.lastRevision = snap.Revision
		for _, it := range item.Catalog() {
			if !gs.Player.Owns(it.ID) && gs.Player.Gold >= it.Price {
				b.stats.ItemsBought = append(b.stats.ItemsBought, it.Name)
				return b.send(network.Command{Type: network.CommandBuy, ItemID: it.ID})
			}
		}
		return b.send(network.Command{Type: network.CommandLeaveMerchant})
	}
	return nil
}

func (b *bot) send(cmd network.Command) error {
	b.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := b.conn.WriteJSON(cmd); err != nil {
		return fmt.Errorf("failed to send %s: %w", cmd.Type, err)
	}
	b.pending = true
	b.stats.CommandsSent++
	return nil
}

func printResults(stats *Stats) {
	fmt.Println("\n=========================================")
	fmt.Println("RUN RESULTS")
	fmt.Println("=========================================")

	fmt.Printf("Started:        %s\n", humanize.Time(stats.Started))
	fmt.Printf("Commands Sent:  %s\n", humanize.Comma(int64(stats.CommandsSent)))
	fmt.Printf("States Seen:    %s\n", humanize.Comma(int64(stats.StatesSeen)))
	fmt.Printf("Answers:        %d right, %d wrong\n", stats.Correct, stats.Wrong)

	if stats.FinalSnapshot == nil {
		fmt.Println("No state received.")
		return
	}
	gs := stats.FinalSnapshot.GameState
	fmt.Printf("Outcome:        %s\n", gs.GameStatus)
	fmt.Printf("Enemies Beaten: %d\n", gs.CurrentEnemyIndex)
	fmt.Printf("Score:          %s\n", humanize.Comma(int64(gs.Player.Score)))
	fmt.Printf("Gold:           %s\n", humanize.Comma(int64(gs.Player.Gold)))
	fmt.Printf("Health:         %d/%d\n", gs.Player.Health, gs.Player.MaxHealth)
	if len(stats.ItemsBought) > 0 {
		fmt.Printf("Items Bought:   %v\n", stats.ItemsBought)
	}
	fmt.Println("=========================================")
}
