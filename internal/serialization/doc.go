// Package serialization implements the .gnet model snapshot container.
//
// A snapshot records the whole graph: every layer's kind, predecessors,
// shapes and configuration, plus the parameter tensors of parametric layers.
// Restoring it rebuilds the graph layer by layer instead of dumping memory.
//
//	Format Structure:
//	  [0x00: Magic "GNET"]
//	  [0x04: Version (uint32 LE)]
//	  [0x08: Flags (uint32 LE)]
//	  [0x0C: Reserved]
//	  [0x10: Header Size (uint64 LE)]
//	  [0x18: Data Size (uint64 LE)]
//	  [0x20: SHA-256 of the data section (32 bytes)]
//	  [0x40: Header: JSON]
//	  [Tensor data: float64 LE, 64-byte aligned]
//
// Example usage:
//
//	if err := serialization.WriteFile("model.gnet", header, data); err != nil {
//	    log.Fatal(err)
//	}
//
//	snap, err := serialization.ReadFile("model.gnet", serialization.ReaderOptions{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, rec := range snap.Header.Layers {
//	    fmt.Println(rec.Index, rec.Kind)
//	}
package serialization
