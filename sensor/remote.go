// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sensor

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

// luxReadingMsg is the wire shape a remote light-sensor process publishes:
// a tagged JSON object so the consumer can tell it apart from any other
// message type sharing the same socket.
type luxReadingMsg struct {
	Type string  `json:"type"` // always "luxReading"
	Lux  float64 `json:"lux"`
}

// RemoteTopic subscribes to ambient-lux readings published by a remote
// light-sensor process over a websocket connection, such as one running on
// a separate board that owns the physical sensor.
type RemoteTopic struct {
	url string

	conn *websocket.Conn
	stop chan struct{}
	done chan struct{}
}

// NewRemoteTopic returns a Topic that dials url (a ws:// or wss:// address)
// and decodes incoming luxReading frames.
func NewRemoteTopic(url string) *RemoteTopic {
	return &RemoteTopic{url: url}
}

// Subscribe dials the remote endpoint and returns a channel of decoded
// Samples. Malformed or unrelated frames are logged and skipped rather
// than closing the connection.
func (r *RemoteTopic) Subscribe() (<-chan Sample, error) {
	conn, _, err := websocket.DefaultDialer.Dial(r.url, nil)
	if err != nil {
		return nil, fmt.Errorf("sensor: dial %s: %w", r.url, err)
	}
	r.conn = conn
	r.stop = make(chan struct{})
	r.done = make(chan struct{})

	out := make(chan Sample, 16)
	go func() {
		defer close(r.done)
		defer close(out)
		defer conn.Close()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				select {
				case <-r.stop:
				default:
					log.Printf("sensor: remote read from %s failed: %v", r.url, err)
				}
				return
			}
			var msg luxReadingMsg
			if err := json.Unmarshal(data, &msg); err != nil || msg.Type != "luxReading" {
				continue
			}
			select {
			case out <- Sample{Lux: float32(msg.Lux), At: time.Now()}:
			case <-r.stop:
				return
			}
		}
	}()
	return out, nil
}

// Close tears down the websocket connection and waits for the read
// goroutine to exit.
func (r *RemoteTopic) Close() error {
	if r.stop == nil {
		return nil
	}
	select {
	case <-r.stop:
	default:
		close(r.stop)
	}
	if r.conn != nil {
		r.conn.Close()
	}
	<-r.done
	return nil
}
