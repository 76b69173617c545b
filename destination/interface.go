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

package destination

import (
	"context"

	"github.com/datazip-inc/tap-apparel-magic/types"
)

type Config interface {
	Validate() error
}

type Writer interface {
	GetConfigRef() Config
	Spec() any
	Type() string
	// Check validates the destination without touching any stream
	Check(ctx context.Context) error
	// Setup prepares the writer for a single stream
	//
	// Note: every stream gets its own writer instance from the pool
	Setup(ctx context.Context, stream types.StreamInterface, opts *Options) error
	// Write hands one record over to the destination; records of a stream arrive in emission order
	Write(ctx context.Context, record types.RawRecord) error
	Close(ctx context.Context) error
}
