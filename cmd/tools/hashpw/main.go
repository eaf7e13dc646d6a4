// Command hashpw generates the argon2id hash for OPERATOR_PASSWORD_HASH.
//
//	go run ./cmd/tools/hashpw <password>
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/alexedwards/argon2id"
)

func main() {
	if len(os.Args) != 2 || os.Args[1] == "" {
		log.Fatal("usage: hashpw <password>")
	}
	hash, err := argon2id.CreateHash(os.Args[1], argon2id.DefaultParams)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}
	fmt.Println(hash)
}
