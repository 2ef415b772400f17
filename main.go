package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"certquiz-service/internal/config"
	"certquiz-service/internal/db"
	"certquiz-service/internal/event"
	"certquiz-service/internal/generation"
	"certquiz-service/internal/handlers"
	"certquiz-service/internal/repository"
	"certquiz-service/internal/service"
	"certquiz-service/internal/upstream"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	db.InitMongo(cfg.MongoURI)

	// RabbitMQ event publisher
	var publisher *event.EventPublisher
	if cfg.RabbitURI != "" && cfg.RabbitExchange != "" {
		publisher, err = event.NewEventPublisher(cfg.RabbitURI, cfg.RabbitExchange)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer publisher.Close()
	} else {
		log.Println("RabbitMQ not configured, quiz events will not be published")
	}

	database := db.Client.Database(cfg.MongoDatabase)

	userRepo := repository.NewUserRepository(database)
	sessionRepo := repository.NewSessionRepository(database)
	questionRepo := repository.NewQuestionRepository(database)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, idx := range []interface {
		EnsureIndexes(context.Context) error
	}{userRepo, sessionRepo, questionRepo} {
		if err := idx.EnsureIndexes(ctx); err != nil {
			log.Fatalf("Failed to create indexes: %v", err)
		}
	}

	api := upstream.NewClient(cfg.CertifiedBaseURL, cfg.CertifiedAPIKey, cfg.UpstreamTimeout)
	manager := generation.NewManager(cfg.Generation, api, questionRepo)

	sessionService := service.NewSessionService(userRepo, sessionRepo, questionRepo, api, manager, cfg.Generation)
	answerService := service.NewAnswerService(sessionRepo, questionRepo, cfg.Generation)
	resultService := service.NewResultService(userRepo, sessionRepo, questionRepo, api, cfg)

	sessionHandler := handlers.NewSessionHandler(sessionService)
	answerHandler := handlers.NewAnswerHandler(answerService)
	resultHandler := handlers.NewResultHandler(resultService)

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "X-User-Phone", "accept", "origin", "Cache-Control", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	setupQuizRoutes(r, sessionHandler, answerHandler, resultHandler, publisher)

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

func setupQuizRoutes(r *gin.Engine, sessionHandler *handlers.SessionHandler,
	answerHandler *handlers.AnswerHandler, resultHandler *handlers.ResultHandler,
	publisher *event.EventPublisher) {

	protected := r.Group("/protected/quiz/session")
	protected.Use(func(c *gin.Context) {
		if c.GetHeader("X-User-Phone") == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
				"code":  "MISSING_USER_PHONE",
			})
			c.Abort()
			return
		}
		c.Next()
	})
	{
		// Start or resume a session; returns immediately even while questions
		// are still generating.
		protected.POST("/resolve", func(c *gin.Context) {
			sessionHandler.ResolveSession(c)
			if publisher != nil {
				publisher.Publish("quiz.session.resolved", gin.H{
					"phone": c.GetHeader("X-User-Phone"),
				})
			}
		})

		// Save an answer and get the next question or completion.
		protected.POST("/:id/answer", func(c *gin.Context) {
			answerHandler.SaveAnswer(c)
			if publisher != nil {
				publisher.Publish("quiz.answer.saved", gin.H{
					"session_id": c.Param("id"),
					"phone":      c.GetHeader("X-User-Phone"),
				})
			}
		})

		// Submit a finished session for scoring and certification.
		protected.POST("/:id/submit", func(c *gin.Context) {
			resultHandler.SubmitSession(c)
			if publisher != nil {
				publisher.Publish("quiz.session.completed", gin.H{
					"session_id": c.Param("id"),
					"phone":      c.GetHeader("X-User-Phone"),
				})
			}
		})

		protected.GET("/:id/questions", sessionHandler.GetSessionQuestions)
	}

	public := r.Group("/public/quiz/session")
	{
		public.GET("/:id", func(c *gin.Context) {
			sessionHandler.GetSession(c)
			if publisher != nil {
				publisher.Publish("quiz.session.public_view", gin.H{
					"session_id": c.Param("id"),
				})
			}
		})
	}
}
