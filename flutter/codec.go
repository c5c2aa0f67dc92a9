package flutter

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// ErrNotImplemented is what the app side sees when the platform answers a
// call with NotImplemented (an empty reply)
var ErrNotImplemented = errors.New("MissingPluginException: no implementation found for method")

// ErrMalformedEnvelope is returned when a reply is neither a success nor an error envelope
var ErrMalformedEnvelope = errors.New("malformed envelope")

// PlatformError is the app-side view of Result.Error
type PlatformError struct {
	Code    string
	Message string
	Details interface{}
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("PlatformException(%s, %s, %v)", e.Code, e.Message, e.Details)
}

// MethodCall is a decoded method invocation
type MethodCall struct {
	Method    string
	Arguments interface{}
}

// Envelope field names
const (
	fieldMethod  = "method"
	fieldArgs    = "args"
	fieldSuccess = "success"
	fieldError   = "error"
	fieldCode    = "code"
	fieldMessage = "message"
	fieldDetails = "details"
)

// StandardMethodCodec encodes calls and envelopes as google.protobuf.Struct
// messages. Payload values must be nil, bool, numbers, strings, or
// []interface{} / map[string]interface{} trees of those; numbers come back
// as float64.
type StandardMethodCodec struct{}

// EncodeValue converts a payload to a protobuf Value
func (StandardMethodCodec) EncodeValue(v interface{}) (*structpb.Value, error) {
	return structpb.NewValue(normalize(v))
}

// normalize widens typed slices the structpb constructors do not accept
func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case []map[string]interface{}:
		out := make([]interface{}, len(t))
		for i, m := range t {
			out[i] = m
		}
		return out
	case []string:
		out := make([]interface{}, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	default:
		return v
	}
}

func (c StandardMethodCodec) marshal(fields map[string]interface{}) ([]byte, error) {
	s := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(fields))}
	for k, v := range fields {
		value, err := c.EncodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", k, err)
		}
		s.Fields[k] = value
	}
	return proto.Marshal(s)
}

func unmarshal(data []byte) (*structpb.Struct, error) {
	s := &structpb.Struct{}
	if err := proto.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	return s, nil
}

// EncodeMethodCall matches: StandardMethodCodec.encodeMethodCall
func (c StandardMethodCodec) EncodeMethodCall(call *MethodCall) ([]byte, error) {
	return c.marshal(map[string]interface{}{
		fieldMethod: call.Method,
		fieldArgs:   call.Arguments,
	})
}

// DecodeMethodCall matches: StandardMethodCodec.decodeMethodCall
func (c StandardMethodCodec) DecodeMethodCall(data []byte) (*MethodCall, error) {
	s, err := unmarshal(data)
	if err != nil {
		return nil, err
	}

	method, ok := s.Fields[fieldMethod]
	if !ok {
		return nil, fmt.Errorf("%w: missing method name", ErrMalformedEnvelope)
	}
	if _, isString := method.GetKind().(*structpb.Value_StringValue); !isString {
		return nil, fmt.Errorf("%w: method name is not a string", ErrMalformedEnvelope)
	}

	call := &MethodCall{Method: method.GetStringValue()}
	if args, ok := s.Fields[fieldArgs]; ok {
		call.Arguments = args.AsInterface()
	}
	return call, nil
}

// EncodeSuccessEnvelope matches: StandardMethodCodec.encodeSuccessEnvelope
func (c StandardMethodCodec) EncodeSuccessEnvelope(result interface{}) ([]byte, error) {
	return c.marshal(map[string]interface{}{
		fieldSuccess: result,
	})
}

// EncodeErrorEnvelope matches: StandardMethodCodec.encodeErrorEnvelope
func (c StandardMethodCodec) EncodeErrorEnvelope(code, message string, details interface{}) ([]byte, error) {
	return c.marshal(map[string]interface{}{
		fieldError: map[string]interface{}{
			fieldCode:    code,
			fieldMessage: message,
			fieldDetails: normalize(details),
		},
	})
}

// DecodeEnvelope returns the success value, a *PlatformError, or
// ErrNotImplemented for an empty reply
func (c StandardMethodCodec) DecodeEnvelope(data []byte) (interface{}, error) {
	if len(data) == 0 {
		return nil, ErrNotImplemented
	}

	s, err := unmarshal(data)
	if err != nil {
		return nil, err
	}

	if errValue, ok := s.Fields[fieldError]; ok {
		fields := errValue.GetStructValue().GetFields()
		pe := &PlatformError{
			Code:    fields[fieldCode].GetStringValue(),
			Message: fields[fieldMessage].GetStringValue(),
		}
		if details, ok := fields[fieldDetails]; ok {
			pe.Details = details.AsInterface()
		}
		return nil, pe
	}

	if success, ok := s.Fields[fieldSuccess]; ok {
		return success.AsInterface(), nil
	}

	return nil, ErrMalformedEnvelope
}
