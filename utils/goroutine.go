package utils

import "github.com/sirupsen/logrus"

// SafeGo 拦截 panic 的 goroutine
func SafeGo(fn func()) {
	go func() {
		defer func() {
			if err := recover(); err != nil {
				logrus.WithField("panic", err).Error("[SafeGo] panic recovered")
			}
		}()
		fn()
	}()
}
