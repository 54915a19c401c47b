// Package sidecar reads and writes the key/value text files whose values may
// reference other files of a pack.
//
// Formats are a closed set registered by extension (see Lookup). Properties
// files are line oriented: '#' comments, blank lines, and "key=value" pairs
// split on the first '='. Files that are not valid UTF-8 are read and written
// back as ISO-8859-1. Pair order is preserved from decode to encode.
package sidecar
