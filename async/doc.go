/*
Package async mirrors the docstore client with operations that run in the
background and resolve through futures.

Every operation starts immediately in its own goroutine and returns a
Future. Await the future when the result is needed; in between, the
caller is free to start more operations:

	client := async.Wrap(syncClient)
	coll := client.Database("app").Container("orders")

	futures := make([]*async.Future[docstore.Document], 0, len(orders))
	for _, order := range orders {
	    futures = append(futures, coll.CreateItem(ctx, order))
	}
	for _, f := range futures {
	    if _, err := f.Await(ctx); err != nil {
	        return err
	    }
	}

An operation runs on the context it was started with. The context passed
to Await only bounds the wait: cancelling it abandons the await, not the
operation.

The mirror adds no semantics of its own. Results, errors, and partition
key handling are exactly those of the synchronous client, so the two
styles can be mixed freely through Wrap and Sync.
*/
package async
