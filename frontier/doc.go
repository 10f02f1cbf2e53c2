// Package frontier drives level-by-level tree induction.
//
// Each level runs in fixed order:
//
//  1. FlushRear evicts back definitions (oldest first).
//  2. Every front node schedules its predictors, flushing their reaching
//     definitions toward the front.
//  3. Queued restages run in parallel; a barrier separates them from
//     split evaluation.
//  4. The splitter evaluates Candidates through a View of the restaged
//     cells.
//  5. AdvanceLevel applies the chosen splits: branch sense, successor
//     ranges, sample paths, and a new front in the definition map.
//
// Induction stops when no front node remains. The result is a PreTree.
//
//	f, err := frontier.New(ctx, frontier.DefaultConfig(), lay, bag)
//	for !f.Done() {
//		if _, err := f.Step(ctx, splitter); err != nil {
//			return err
//		}
//	}
//	tree := f.Tree()
package frontier
