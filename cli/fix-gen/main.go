package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"time"
)

/*
Synthetic fix generator.

Posts randomised location fixes for a set of vehicles against a running
tracking API, useful for load checks and for feeding dashboards in demos.

Usage:
  -server string
        Tracking API base URL (default "http://localhost:8080")
  -key string
        API key (require)
  -vehicles int
        Number of simulated vehicles (default 10)
  -interval duration
        Delay between rounds (default 1s)
  -rounds int
        Rounds to send, 0 means run forever
  -lat float / -lon float
        Fleet starting point (default Pune)
  -spread float
        Max random step per round in degrees (default 0.002)

Example

```
./fix-gen -server http://localhost:8080 -key demo-key -vehicles 25 -interval 500ms
```
*/

type fixBody struct {
	VehicleID string    `json:"vehicleId"`
	DriverID  string    `json:"driverId"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Speed     float64   `json:"speed"`
	Heading   float64   `json:"heading"`
	Timestamp time.Time `json:"timestamp"`
}

func main() {
	server := ""
	key := ""
	vehicles := 0
	rounds := 0
	lat := 0.0
	lon := 0.0
	spread := 0.0
	var interval time.Duration

	flag.StringVar(&server, "server", "http://localhost:8080", "Tracking API base URL")
	flag.StringVar(&key, "key", "", "API key (require)")
	flag.IntVar(&vehicles, "vehicles", 10, "Number of simulated vehicles")
	flag.DurationVar(&interval, "interval", time.Second, "Delay between rounds")
	flag.IntVar(&rounds, "rounds", 0, "Rounds to send, 0 means run forever")
	flag.Float64Var(&lat, "lat", 18.5204, "Fleet starting latitude")
	flag.Float64Var(&lon, "lon", 73.8567, "Fleet starting longitude")
	flag.Float64Var(&spread, "spread", 0.002, "Max random step per round in degrees")
	flag.Parse()

	if key == "" {
		fmt.Println("An API key is required, see help (-h)")
		os.Exit(1)
	}
	if vehicles <= 0 {
		fmt.Println("At least one vehicle is required, see help (-h)")
		os.Exit(1)
	}

	positions := make([]fixBody, vehicles)
	for i := range positions {
		positions[i] = fixBody{
			VehicleID: fmt.Sprintf("sim-truck-%03d", i+1),
			DriverID:  fmt.Sprintf("sim-driver-%03d", i+1),
			Latitude:  lat + (rand.Float64()-0.5)*spread*10,
			Longitude: lon + (rand.Float64()-0.5)*spread*10,
		}
	}

	client := &http.Client{Timeout: 5 * time.Second}
	sent, failed := 0, 0

	for round := 0; rounds == 0 || round < rounds; round++ {
		for i := range positions {
			p := &positions[i]
			p.Latitude += (rand.Float64() - 0.5) * spread
			p.Longitude += (rand.Float64() - 0.5) * spread
			p.Speed = 20 + rand.Float64()*60
			p.Heading = rand.Float64() * 360
			p.Timestamp = time.Now().UTC()

			if err := post(client, server, key, *p); err != nil {
				failed++
				fmt.Fprintf(os.Stderr, "%s: %v\n", p.VehicleID, err)
				continue
			}
			sent++
		}
		fmt.Printf("round %d done, %d sent, %d failed\n", round+1, sent, failed)
		time.Sleep(interval)
	}
}

func post(client *http.Client, server, key string, body fixBody) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, server+"/tracking/location", bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", key)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return nil
}
