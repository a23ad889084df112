// Package config loads the YAML configuration of the reference bridge host.
//
// A minimal file:
//
//	bridge:
//	  scan_every: 4
//	  frame_rate: 30
//	transport:
//	  listen: ":4710"
//	discovery:
//	  advertise: true
//	logging:
//	  level: info
//	  protocol_log: bridge.lblog
//	simulation:
//	  variables:
//	    - name: A32NX_AUTOPILOT_HEADING_SELECTED
//	      waveform: ramp
//	      amplitude: 360
//	      period: 600
//
// Missing sections keep their defaults.
package config
