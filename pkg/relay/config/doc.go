// Package config loads relay configuration from YAML or JSON files and
// provides type-safe access to the values.
//
// A configuration file carries bus settings and the remote target list:
//
//	dispatch_timeout: 5s
//	max_concurrent_dispatches: 16
//	remote_targets:
//	  - type: url
//	    address: https://hooks.example.com/orders
//	    headers:
//	      X-Api-Key: secret
//	    events: [order.created, order.cancelled]
//	  - type: kafka
//	    address: kafka://broker:9092/events
//	    events: [order.created]
//
// Load it and build a bus:
//
//	cfg, err := config.FromFile("relay.yaml")
//	targets, err := cfg.Targets()
//	bus, err := relay.New(cfg.Bus(), targets...)
package config
