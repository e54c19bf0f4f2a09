// Package script compiles JavaScript payload decoders.
//
// A subscription's decoder doesn't have to be Go: a configuration
// file can carry a little ECMAScript that sees the envelope payload
// as 'data' and either returns the decoded message or throws.  Goja
// (a Go implementation of ECMAScript 5.1+) runs the code.
//
// See https://github.com/dop251/goja.
package script

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gangwayio/gangway/bridge"

	"github.com/dop251/goja"
)

var (
	// InterruptedMessage is the string value of Interrupted.
	InterruptedMessage = "RuntimeError: timeout"

	// Interrupted is returned by a decoder if its execution is
	// interrupted.
	Interrupted = errors.New(InterruptedMessage)
)

// Interpreter makes bridge.Decoders out of JavaScript source.
type Interpreter struct {
	// Timeout bounds each decoder invocation.  Zero means no
	// bound, which you probably don't want for code that arrived
	// in a config file.
	Timeout time.Duration

	// Testing is used to expose or hide some runtime
	// capabilities.
	Testing bool
}

// NewInterpreter makes a new Interpreter with a one-second Timeout.
func NewInterpreter() *Interpreter {
	return &Interpreter{
		Timeout: time.Second,
	}
}

func wrapSrc(src string) string {
	return fmt.Sprintf("(function() {\n%s\n}());\n", src)
}

// Decoder compiles src into a bridge.Decoder.
//
// The code runs once per matching envelope, in a fresh runtime, with
// the payload bound to 'data' (as a plain JavaScript value).  What
// the code returns becomes the Message value; a throw becomes a
// decode failure.
//
// Compilation problems surface here, at registration time, not
// during dispatch.
func (i *Interpreter) Decoder(name, src string) (bridge.Decoder, error) {
	p, err := goja.Compile(name, wrapSrc(src), true)
	if err != nil {
		return nil, err
	}

	return func(data json.RawMessage) (interface{}, error) {
		var v interface{}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}

		o := goja.New()
		o.Set("data", v)

		if i.Testing {
			o.Set("sleep", func(ms int) {
				time.Sleep(time.Duration(ms) * time.Millisecond)
			})
		}

		if 0 < i.Timeout {
			ictx, cancel := context.WithTimeout(context.Background(), i.Timeout)
			go func() {
				<-ictx.Done()
				// If the program returned before the
				// deadline, this Interrupt hits a
				// runtime nobody will use again, which
				// is the behavior we want.
				o.Interrupt(InterruptedMessage)
			}()
			defer cancel()
		}

		val, err := o.RunProgram(p)
		if err != nil {
			if _, is := err.(*goja.InterruptedError); is {
				return nil, Interrupted
			}
			return nil, err
		}

		return canonicalize(val.Export())
	}, nil
}

// canonicalize maps Goja's exported values (int64s and friends) into
// the same shapes encoding/json produces.
func canonicalize(x interface{}) (interface{}, error) {
	if x == nil {
		return nil, nil
	}
	js, err := json.Marshal(&x)
	if err != nil {
		return nil, err
	}
	var y interface{}
	if err = json.Unmarshal(js, &y); err != nil {
		return nil, err
	}
	return y, nil
}
