package server

import (
	"encoding/json"
	"testing"

	"dodgearena/game"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	b, err := Encode(MsgPlayerHit, PlayerHitMessage{ExternalID: "x", DisplayName: "u", AliveRemaining: 2, HPRemaining: 1})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	data := raw["data"].(map[string]any)
	if raw["type"] != MsgPlayerHit || data["hpRemaining"] != float64(1) || data["externalId"] != "x" {
		t.Fatalf("wire form = %s", b)
	}

	env, err := DecodeEnvelope(b)
	if err != nil {
		t.Fatalf("DecodeEnvelope: %v", err)
	}
	hit, err := DecodePayload[PlayerHitMessage](env)
	if err != nil || hit.AliveRemaining != 2 {
		t.Fatalf("payload = %+v err=%v", hit, err)
	}
}

func TestDecodeEnvelopeRejectsBadFrames(t *testing.T) {
	for _, in := range []string{"", "not json", `{"data":{}}`} {
		if _, err := DecodeEnvelope([]byte(in)); err == nil {
			t.Fatalf("DecodeEnvelope(%q) succeeded", in)
		}
	}
}

func TestDecodePayloadWithoutData(t *testing.T) {
	env, err := DecodeEnvelope([]byte(`{"type":"ready"}`))
	if err != nil {
		t.Fatalf("DecodeEnvelope: %v", err)
	}
	if _, err := DecodePayload[struct{}](env); err != nil {
		t.Fatalf("ready payload: %v", err)
	}
	in, err := DecodePayload[InputMessage](Envelope{Type: MsgInput, Data: json.RawMessage(`{"dx":-1,"dy":0.5}`)})
	if err != nil || in.DX != -1 || in.DY != 0.5 {
		t.Fatalf("input = %+v err=%v", in, err)
	}
	if _, err := DecodePayload[InputMessage](Envelope{Type: MsgInput, Data: json.RawMessage(`"up"`)}); err == nil {
		t.Fatalf("string input payload accepted")
	}
}

func TestJoinMessageValidate(t *testing.T) {
	ok := JoinMessage{RoomCode: "R", DisplayName: "u", AuthCode: "1"}
	if err := ok.validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	for _, m := range []JoinMessage{{DisplayName: "u", AuthCode: "1"}, {RoomCode: "R", AuthCode: "1"}, {RoomCode: "R", DisplayName: "u"}} {
		if err := m.validate(); err != ErrMissingFields {
			t.Fatalf("validate(%+v) = %v", m, err)
		}
	}
}

func TestGameOverWireShape(t *testing.T) {
	at := 12
	b, err := Encode(MsgGameOver, GameOverMessage{
		Placements: []game.Placement{{ExternalID: "a", DisplayName: "alice", Place: 1}, {ExternalID: "b", DisplayName: "bob", Place: 2, EliminatedAt: &at}},
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	env, _ := DecodeEnvelope(b)
	var data map[string]any
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if w, ok := data["winner"]; !ok || w != nil {
		t.Fatalf("draw must carry a null winner, got %s", env.Data)
	}
}

func TestWireFieldNames(t *testing.T) {
	env, err := DecodeEnvelope([]byte(`{"type":"join","data":{"roomCode":"R","displayName":"alice","authCode":"42"}}`))
	if err != nil {
		t.Fatalf("DecodeEnvelope: %v", err)
	}
	join, err := DecodePayload[JoinMessage](env)
	if err != nil || join.validate() != nil || join.DisplayName != "alice" {
		t.Fatalf("join = %+v err=%v", join, err)
	}

	for _, c := range []struct {
		msgType string
		payload any
		fields  []string
	}{
		{MsgGameStart, GameStartMessage{CountdownSeconds: 3}, []string{"countdownSeconds"}},
		{MsgGameState, GameStateMessage{ElapsedTicks: 7}, []string{"players", "bullets", "items", "elapsedTicks"}},
		{MsgPlayerHit, PlayerHitMessage{}, []string{"externalId", "displayName", "aliveRemaining", "hpRemaining"}},
	} {
		b, err := Encode(c.msgType, c.payload)
		if err != nil {
			t.Fatalf("Encode %s: %v", c.msgType, err)
		}
		env, _ := DecodeEnvelope(b)
		var data map[string]any
		if err := json.Unmarshal(env.Data, &data); err != nil {
			t.Fatalf("unmarshal %s: %v", c.msgType, err)
		}
		for _, f := range c.fields {
			if _, ok := data[f]; !ok {
				t.Fatalf("%s missing field %q: %s", c.msgType, f, env.Data)
			}
		}
	}
}
