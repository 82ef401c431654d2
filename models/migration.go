package models

import (
	"log"

	"bitbucket.org/mmdatafocus/condopal_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&User{},
		&Condo{},
		&LeaseAgreement{},
		&Maintenance{},
		&CondoPayment{},
		&PaymentEventRecord{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
