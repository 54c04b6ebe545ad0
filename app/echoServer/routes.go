package echoServer

import (
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/deivisson-souza-84lab/libManager/app/echoServer/controller/auth"
	"github.com/deivisson-souza-84lab/libManager/app/echoServer/controller/author"
	"github.com/deivisson-souza-84lab/libManager/app/echoServer/controller/book"
	"github.com/deivisson-souza-84lab/libManager/app/echoServer/controller/loan"
	tokenrepo "github.com/deivisson-souza-84lab/libManager/repository/token"
)

type C struct {
	Auth      *auth.Controller
	Author    *author.Controller
	Book      *book.Controller
	Loan      *loan.Controller
	Tokens    tokenrepo.Store
	JWTSecret string
}

func Register(e *echo.Echo, c C) {
	// Public
	pub := e.Group("/api")
	pub.POST("/register", c.Auth.Register)
	pub.POST("/login", c.Auth.Login)

	// Authenticated
	api := e.Group("/api")
	api.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey:    []byte(c.JWTSecret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims { return jwt.MapClaims{} },
	}))
	api.Use(Claims(c.Tokens))

	api.GET("/profile", c.Auth.Profile)
	api.GET("/refresh-token", c.Auth.Refresh)
	api.GET("/logout", c.Auth.Logout)

	api.GET("/authors", c.Author.List)
	api.GET("/authors/:id", c.Author.Detail)
	api.GET("/books", c.Book.List)
	api.GET("/books/:id", c.Book.Detail)
	api.GET("/loans", c.Loan.List)
	api.GET("/loans/:id", c.Loan.Detail)

	// Mutations are admin only
	admin := api.Group("", RequireAdmin())
	admin.POST("/authors", c.Author.Create)
	admin.PUT("/authors/:id", c.Author.Update)
	admin.DELETE("/authors/:id", c.Author.Delete)

	admin.POST("/books", c.Book.Create)
	admin.PUT("/books/:id", c.Book.Update)
	admin.DELETE("/books/:id", c.Book.Delete)

	admin.POST("/loans", c.Loan.Create)
	admin.PUT("/loans/:id", c.Loan.Update)
	admin.DELETE("/loans/:id", c.Loan.Close)
	admin.POST("/loans/:id/reopen", c.Loan.Reopen)
	admin.DELETE("/loans/:id/purge", c.Loan.Purge)
}
