/*
 * Copyright 2025 Olake By Datazip
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package safego

import (
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/datazip-inc/tap-apparel-magic/utils/logger"
)

type RecoverHandler func(value interface{})

var GlobalRecoverHandler RecoverHandler = func(value interface{}) {
	logger.Errorf("recovered from panic: %v", value)
}

var (
	startTime time.Time
)

// Run runs f in a new goroutine with a panic handler
func Run(f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				GlobalRecoverHandler(r)
			}
		}()
		f()
	}()
}

// Recovery logs a recovered panic with its stack trace; exits with code 1 when exit is set
func Recovery(exit bool) {
	err := recover()
	if err == nil {
		return
	}

	logger.Error(err)
	// capture stacks trace
	for _, str := range strings.Split(string(debug.Stack()), "\n") {
		logger.Error(strings.ReplaceAll(str, "\t", ""))
	}
	if exit {
		logger.Infof("Time of execution %v", time.Since(startTime).String())
		os.Exit(1)
	}
}

func init() {
	startTime = time.Now()
}
