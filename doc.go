// Package gangway provides a typed, tagged message bridge between a
// host runtime and embedded modules.
//
// The core code is in package 'bridge', and some command-line tools are in `cmd`.
//
// See https://github.com/gangwayio/gangway/blob/master/README.md for more.
package gangway
