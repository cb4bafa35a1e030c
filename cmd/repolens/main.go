// Copyright 2025 Hiro Moritama
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/awnumar/memguard"
	"github.com/joho/godotenv"
)

func main() {
	// Optional .env for GITHUB_TOKEN and friends.
	_ = godotenv.Load()

	// Interrupt must kill in-flight providers and wipe secret memory.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer memguard.Purge()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		memguard.Purge()
		os.Exit(1)
	}
}
