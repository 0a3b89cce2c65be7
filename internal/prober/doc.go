// Package prober runs the background active-health task: every tick it
// probes all nodes concurrently, joining before the next tick (§4.4).
package prober
