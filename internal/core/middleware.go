package core

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	logx "botlib/pkg/logx"
)

type Middleware func(next HandlerFunc) HandlerFunc

func Chain(h HandlerFunc, m ...Middleware) HandlerFunc {
	for i := len(m) - 1; i >= 0; i-- {
		h = m[i](h)
	}
	return h
}

func MWTimeout(d time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, call *Call) error {
			if d <= 0 {
				return next(ctx, call)
			}
			cctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next(cctx, call)
		}
	}
}

// MWPanicRecover converts a handler panic into an ordinary invocation
// error so one broken handler can never take down the dispatch loop.
func MWPanicRecover(log logx.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, call *Call) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error("panic recovered",
						logx.String("trigger", call.Trigger),
						logx.Any("panic", r),
						logx.String("stack", string(debug.Stack())),
					)
					err = fmt.Errorf("panic: %v", r)
				}
			}()
			return next(ctx, call)
		}
	}
}

func MWInvokeLog(log logx.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, call *Call) error {
			start := time.Now()
			err := next(ctx, call)
			fields := []logx.Field{
				logx.String("rid", call.ReqID),
				logx.String("kind", call.Kind.String()),
				logx.String("trigger", call.Trigger),
				logx.Int64("chat_id", call.ChatID),
				logx.Duration("dur", time.Since(start)),
			}
			if call.User.Known {
				fields = append(fields, logx.Int64("from_id", call.User.ID))
			}
			if err != nil {
				log.Warn("invocation failed", append(fields, logx.Err(err))...)
			} else {
				log.Info("invocation ok", fields...)
			}
			return err
		}
	}
}
