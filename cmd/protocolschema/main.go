package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"dodgearena/server"
)

// Protocol 汇总全部 WebSocket 消息载荷，用于生成客户端校验用的 JSON Schema
type Protocol struct {
	Envelope  server.Envelope         `json:"envelope"`
	Join      server.JoinMessage      `json:"join"`
	Input     server.InputMessage     `json:"input"`
	RoomState server.RoomStateMessage `json:"room_state"`
	GameStart server.GameStartMessage `json:"game_start"`
	GameState server.GameStateMessage `json:"game_state"`
	PlayerHit server.PlayerHitMessage `json:"player_hit"`
	GameOver  server.GameOverMessage  `json:"game_over"`
	RoomError server.RoomErrorMessage `json:"room_error"`
}

func main() {
	var outPath string
	flag.StringVar(&outPath, "out", "", "path to write the JSON schema")
	flag.Parse()

	if outPath == "" {
		fmt.Fprintln(os.Stderr, "--out is required")
		os.Exit(1)
	}

	if err := writeSchema(outPath, buildSchema()); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write schema: %v\n", err)
		os.Exit(1)
	}
}

func buildSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
	}
	return reflector.Reflect(new(Protocol))
}

func writeSchema(outPath string, schema *jsonschema.Schema) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create schema directory: %w", err)
	}
	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("replace schema: %w", err)
	}
	return nil
}
