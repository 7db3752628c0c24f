// Package errs defines the engine's error taxonomy: a closed set of kinds
// that callers can branch on with errors.Is, instead of one error type per
// failure mode.
package errs

import "fmt"

// Kind identifies a category of failure. Several kinds historically carry
// the same user-facing message ("unknown error") but remain structurally
// distinct constants so callers never need to compare error strings.
type Kind int

const (
	KindUnknown Kind = iota
	KindTransportFailure
	KindHTTPStatusFailure
	KindJSONDecodeFailure
	KindMissingCredentials
	KindOrderNotFound
	KindOrderNotFilled
	KindFirstTriSendError
	KindFirstTriFilledError
	KindSecondTriSendError
	KindSecondTriFilledError
	KindThirdTriSendError
	KindThirdTriFilledError
)

func (k Kind) String() string {
	switch k {
	case KindTransportFailure:
		return "transport failure"
	case KindHTTPStatusFailure:
		return "unexpected HTTP status"
	case KindJSONDecodeFailure:
		return "failed to decode JSON body"
	case KindMissingCredentials:
		return "missing API credentials"
	case KindOrderNotFound:
		return "order not found"
	case KindOrderNotFilled:
		return "order not filled"
	case KindFirstTriSendError:
		return "first leg: failed to submit order"
	case KindFirstTriFilledError:
		return "first leg: order did not fill within the poll budget"
	case KindSecondTriSendError:
		return "second leg: failed to submit order"
	case KindSecondTriFilledError:
		return "second leg: order did not fill within the poll budget"
	case KindThirdTriSendError:
		return "third leg: failed to submit order"
	case KindThirdTriFilledError:
		return "third leg: order did not fill within the poll budget"
	default:
		return "unknown error raised"
	}
}

// TradeError is the engine's single error type. It carries a Kind plus
// optional status/body context and a wrapped cause.
type TradeError struct {
	Kind   Kind
	Status int    // HTTP status code, when Kind == KindHTTPStatusFailure
	Body   string // response or order-id context, depending on Kind
	Err    error  // wrapped cause, if any
}

func (e *TradeError) Error() string {
	switch {
	case e.Kind == KindHTTPStatusFailure:
		return fmt.Sprintf("%s: status=%d body=%s", e.Kind, e.Status, e.Body)
	case e.Kind == KindJSONDecodeFailure:
		return fmt.Sprintf("%s: body=%s", e.Kind, e.Body)
	case e.Kind == KindOrderNotFound:
		return fmt.Sprintf("%s: order_id=%s", e.Kind, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

func (e *TradeError) Unwrap() error {
	return e.Err
}

// Is reports whether target has the same Kind, letting errors.Is(err,
// &TradeError{Kind: errs.KindOrderNotFound}) work without matching Body/Err.
func (e *TradeError) Is(target error) bool {
	t, ok := target.(*TradeError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New builds a TradeError with no wrapped cause.
func New(kind Kind) *TradeError {
	return &TradeError{Kind: kind}
}

// Wrap builds a TradeError wrapping err.
func Wrap(kind Kind, err error) *TradeError {
	return &TradeError{Kind: kind, Err: err}
}

// HTTPStatus builds the HTTP-status-failure variant.
func HTTPStatus(status int, body string) *TradeError {
	return &TradeError{Kind: KindHTTPStatusFailure, Status: status, Body: body}
}

// JSONDecode builds the JSON-decode-failure variant.
func JSONDecode(body string, err error) *TradeError {
	return &TradeError{Kind: KindJSONDecodeFailure, Body: body, Err: err}
}

// OrderNotFound builds the order-not-found variant.
func OrderNotFound(orderID string) *TradeError {
	return &TradeError{Kind: KindOrderNotFound, Body: orderID}
}

// LegSendError maps a 1-indexed leg number to its *TriSendError kind.
func LegSendError(leg int) *TradeError {
	switch leg {
	case 1:
		return New(KindFirstTriSendError)
	case 2:
		return New(KindSecondTriSendError)
	case 3:
		return New(KindThirdTriSendError)
	default:
		return New(KindUnknown)
	}
}

// LegFilledError maps a 1-indexed leg number to its *TriFilledError kind.
func LegFilledError(leg int) *TradeError {
	switch leg {
	case 1:
		return New(KindFirstTriFilledError)
	case 2:
		return New(KindSecondTriFilledError)
	case 3:
		return New(KindThirdTriFilledError)
	default:
		return New(KindUnknown)
	}
}
