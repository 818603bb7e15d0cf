// Package displayset groups image instances into display sets, names their
// frames with image IDs and announces sets to measurement trackers as they
// are added.
package displayset
