// Package gc implements the Quill memory manager.
//
// This package contains:
//   - NaN-boxed value representation
//   - Paged, size-classed object heap
//   - Incremental tri-color mark/sweep collector with a young/old
//     generational split
//   - LIFO root-protection arena for native call frames
//   - Frame-budget scheduler driven by the embedding host
package gc
