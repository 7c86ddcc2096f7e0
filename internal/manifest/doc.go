// Package manifest reads tab-separated link manifests and turns every
// (link, name) entry whose link ends in a requested suffix into a download
// candidate named name+suffix.
//
// A manifest line has the shape "<link>\t<name>". Lines that do not split
// into exactly two fields are skipped silently; they are counted in Stats
// but never reported as errors.
package manifest
