package main

import (
	"fmt"
	"log"

	"vanik/internal/config"
	"vanik/internal/email/noop"
	"vanik/internal/email/ses"
	"vanik/internal/handler"
	"vanik/internal/port"
	"vanik/internal/repository/postgres"
	"vanik/internal/router"
	"vanik/internal/service"
	s3storage "vanik/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	orgRepo := postgres.NewOrgRepo(db)
	userRepo := postgres.NewUserRepo(db)
	customerRepo := postgres.NewCustomerRepo(db)
	productRepo := postgres.NewProductRepo(db)
	hsnRepo := postgres.NewHSNRepo(db)
	serialRepo := postgres.NewSerialRepo(db)
	seqRepo := postgres.NewSequenceRepo(db)
	invoiceRepo := postgres.NewInvoiceRepo(db)
	billRepo := postgres.NewPurchaseBillRepo(db)
	stockRepo := postgres.NewStockRepo(db)
	consignRepo := postgres.NewConsignmentRepo(db)
	postingStore := postgres.NewPostingStore(db, postgres.RetryPolicy{
		MaxAttempts: cfg.Posting.MaxAttempts,
		Backoff:     cfg.Posting.Backoff,
	})

	// Initialize storage
	s3Client, err := s3storage.NewS3Client(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	// Initialize email sender
	var emailSender port.EmailSender
	switch cfg.Email.Provider {
	case "ses":
		emailSender, err = ses.NewSESSender(cfg.Email.Region, cfg.Email.FromAddress, cfg.Email.FromName)
		if err != nil {
			return fmt.Errorf("failed to initialize SES sender: %w", err)
		}
	default:
		emailSender = noop.NewNoopSender()
	}

	// Initialize services
	authSvc := service.NewAuthService(userRepo, orgRepo, cfg.JWT)
	orgSvc := service.NewOrgService(orgRepo)
	customerSvc := service.NewCustomerService(customerRepo)
	productSvc := service.NewProductService(productRepo, serialRepo, hsnRepo)
	invoiceSvc := service.NewInvoiceService(invoiceRepo, orgRepo, customerRepo, productRepo, hsnRepo, stockRepo, serialRepo, consignRepo, seqRepo, postingStore)
	billSvc := service.NewPurchaseBillService(billRepo, orgRepo, productRepo, seqRepo, postingStore, emailSender)
	stockSvc := service.NewStockService(stockRepo, consignRepo, productRepo, postingStore)
	reportSvc := service.NewReportService(invoiceRepo, orgRepo, s3Client, cfg.S3.Bucket)

	// Initialize handlers
	authH := handler.NewAuthHandler(authSvc)
	orgH := handler.NewOrgHandler(orgSvc)
	customerH := handler.NewCustomerHandler(customerSvc)
	productH := handler.NewProductHandler(productSvc)
	invoiceH := handler.NewInvoiceHandler(invoiceSvc)
	billH := handler.NewPurchaseBillHandler(billSvc)
	stockH := handler.NewStockHandler(stockSvc)
	reportH := handler.NewReportHandler(reportSvc)
	healthH := handler.NewHealthHandler(db)

	// Setup router
	r := router.Setup(authSvc, cfg.CORS.AllowedOrigins, authH, orgH, customerH, productH, invoiceH, billH, stockH, reportH, healthH)

	log.Printf("Server starting on %s", cfg.Server.Port)
	if err := r.Run(cfg.Server.Port); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}
