// Emite un JWT firmado con JWT_SECRET.
// Uso: go run ./cmd/gentoken -usuario mostrador -rol vendedor
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"maderera/internal/config"
	"maderera/internal/middleware"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func main() {
	usuario := flag.String("usuario", "admin", "username embebido en el token")
	rol := flag.String("rol", middleware.RolAdministrador, "vendedor | administrador")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if cfg.JWTSecret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET no configurado")
		os.Exit(1)
	}

	now := time.Now()
	claims := middleware.JWTClaims{
		UserID:   uuid.NewString(),
		Username: *usuario,
		Rol:      *rol,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(cfg.JWTExpirationHours) * time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		fmt.Fprintln(os.Stderr, "firma:", err)
		os.Exit(1)
	}
	fmt.Println(signed)
}
