// Package hub fans processed scanner lines out to live web subscribers.
package hub
