// Package blue derives the Bolivian blue market dollar rate.
//
// The Pipeline reduces the public USDT/BOB P2P offers to a median
// buy / sell pair, derives the EUR and BRL legs from published reference
// rates, and attaches the official rate when one is configured.
// It is the upstream of the rate cache.
//
// The Recorder stores every fresh snapshot as BUY / SELL rows, and the
// Source serves them back as downsampled historical series.
package blue
