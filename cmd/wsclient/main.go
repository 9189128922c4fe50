package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

// Manual client for the challenge subscription endpoint: subscribes to one
// challenge and pretty-prints every snapshot pushed by the server.
func main() {
	var (
		addr        = flag.String("addr", "localhost:8080", "server address")
		challengeID = flag.String("challenge", "", "challenge id to subscribe to")
	)
	flag.Parse()

	if *challengeID == "" {
		log.Fatal("missing -challenge")
	}

	url := fmt.Sprintf("ws://%s/api/v1/ws/challenges/%s", *addr, *challengeID)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer conn.Close()

	for {
		_, p, err := conn.ReadMessage()
		if err != nil {
			log.Println("read error:", err)
			return
		}

		var snapshot map[string]interface{}
		if err := json.Unmarshal(p, &snapshot); err != nil {
			log.Println("json unmarshal error:", err)
			continue
		}

		pretty, err := json.MarshalIndent(snapshot, "", "  ")
		if err != nil {
			log.Println("json marshal error:", err)
			continue
		}

		log.Printf("Received:\n%s\n", pretty)
	}
}
