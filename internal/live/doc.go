// Package live turns raw filesystem notifications into the files-changed
// messages streamed to browsers.
//
// A Subscriber creates one watch per subscription. The watch callback filters
// noise paths, encodes a ChangeEvent carrying the current drop flag and offers
// it to a DropChannel without blocking. The returned stream owns the watch, so
// the OS handle goes away as soon as the stream ends or its client leaves.
package live
