// Package naming derives output file names and resolves in-run collisions.
//
// DestName implements the two naming schemes: sequential "<prefix><i>.<fmt>"
// when renaming, otherwise "<stem>.<fmt>". CollisionResolver makes sure two
// sources never write the same output within one run.
package naming
