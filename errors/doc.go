/*
Package errors provides semantic error types for the docstore library.

The package defines the closed set of failure conditions a caller can
observe, checkable with the standard errors.Is() function or the provided
helper functions.

Common Errors:

	var (
	    ErrNotFound           = errors.New("resource not found")
	    ErrConflict           = errors.New("resource conflict")
	    ErrPreconditionFailed = errors.New("precondition failed")
	    ErrInvalidInput       = errors.New("invalid input")
	)

Failures reported by the store are *Error values carrying the HTTP status
code of the response. The status code determines which sentinel the error
matches: 404 matches ErrNotFound, 409 matches ErrConflict, and 412 matches
ErrPreconditionFailed. Any other non-success status still yields an *Error
so the code remains inspectable, it just matches no sentinel.

Validation failures detected before a request is dispatched are
*ValidationError values matching ErrInvalidInput, so callers can always
distinguish a malformed request from a store rejection.

Usage:

	item, err := container.ReadItem(ctx, "123", docstore.WithPartitionKey("123"))
	if err != nil {
	    if errors.IsNotFound(err) {
	        // Handle missing document
	        return nil, fmt.Errorf("order %s does not exist", "123")
	    }
	    return nil, err
	}

	// Branch on the raw status code
	if errors.StatusCode(err) == http.StatusTooManyRequests {
	    // back off
	}

The error types implement the error interface and support wrapping,
making them compatible with Go's standard error handling patterns.
*/
package errors
