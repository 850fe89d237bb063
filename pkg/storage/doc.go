// Package storage implements the batched session protocol records are read
// and written through, and the back-ends speaking it.
//
// A session is bound to one phase and one path. Indexes are marked on the
// session and all the I/O happens at End, which always releases the
// underlying handle:
//
//	s, err := backend.BeginWrite("numbers.bin")
//	if err != nil {
//		return err
//	}
//	s.Write(0, 10)
//	s.Write(1, 20)
//	return s.End()
//
// A backend hands out one session at a time. Beginning a second session
// before the first has ended fails with ErrConcurrentSession.
//
// FileBackend opens a file per session and hands it to a FileCodec:
// BinaryCodec for the positional binary layout and TextCodec for JSON or
// YAML documents. PebbleBackend keeps records in a pebble database.
package storage
