package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied in order; every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id               BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		first_name       VARCHAR(100) NOT NULL DEFAULT '',
		last_name        VARCHAR(100) NOT NULL DEFAULT '',
		document_type    VARCHAR(100) NOT NULL DEFAULT '',
		country          VARCHAR(100) NOT NULL DEFAULT '',
		document_number  VARCHAR(100) NOT NULL DEFAULT '',
		doc_expiry       VARCHAR(20) NOT NULL DEFAULT '',
		dob              VARCHAR(20) NOT NULL DEFAULT '',
		gender           VARCHAR(20) NOT NULL DEFAULT '',
		foreign_reg      TINYINT(1)   NOT NULL DEFAULT 0,
		foreigner_number VARCHAR(100) NOT NULL DEFAULT '',
		username         VARCHAR(255) NOT NULL,
		password         VARCHAR(255) NOT NULL,
		terms            TINYINT(1)   NOT NULL DEFAULT 0,
		auto_read        TINYINT(1)   NOT NULL DEFAULT 1,
		otp              INT          NULL,
		otp_expires_at   DATETIME     NULL,
		otp_verify       TINYINT(1)   NOT NULL DEFAULT 0,
		is_active        TINYINT(1)   NOT NULL DEFAULT 1,
		is_deleted       TINYINT(1)   NOT NULL DEFAULT 0,
		is_admin         TINYINT(1)   NOT NULL DEFAULT 0,
		document_file    VARCHAR(512) NULL,
		created_by       BIGINT UNSIGNED NULL,
		created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_users_username (username, is_deleted),
		CONSTRAINT fk_users_created_by FOREIGN KEY (created_by) REFERENCES users(id) ON DELETE SET NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS user_tokens (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id       BIGINT UNSIGNED NOT NULL,
		auth_token    TEXT NULL,
		refresh_token TEXT NULL,
		created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_user_tokens_user (user_id),
		CONSTRAINT fk_user_tokens_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS applications (
		id                     BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id                BIGINT UNSIGNED NULL,
		purpose                VARCHAR(100) NOT NULL DEFAULT '',
		specific_purpose       VARCHAR(100) NOT NULL DEFAULT '',
		des_purpose            VARCHAR(1000) NOT NULL DEFAULT '',
		last_name              VARCHAR(100) NOT NULL DEFAULT '',
		address                VARCHAR(1000) NOT NULL DEFAULT '',
		last_name_at_birth     VARCHAR(100) NOT NULL DEFAULT '',
		telephone              VARCHAR(32) NOT NULL DEFAULT '',
		first_name             VARCHAR(100) NOT NULL DEFAULT '',
		passport_issue_country VARCHAR(100) NOT NULL DEFAULT '',
		gender                 VARCHAR(20) NOT NULL DEFAULT '',
		citizenship            VARCHAR(100) NOT NULL DEFAULT '',
		dob                    VARCHAR(20) NOT NULL DEFAULT '',
		marital_status         VARCHAR(50) NOT NULL DEFAULT '',
		country_of_birth       VARCHAR(100) NOT NULL DEFAULT '',
		father_first_name      VARCHAR(100) NOT NULL DEFAULT '',
		place_of_birth         VARCHAR(100) NOT NULL DEFAULT '',
		mother_first_name      VARCHAR(100) NOT NULL DEFAULT '',
		email                  VARCHAR(255) NOT NULL DEFAULT '',
		type_of_doc            VARCHAR(100) NOT NULL DEFAULT '',
		date_of_issue          VARCHAR(20) NOT NULL DEFAULT '',
		doc_number             VARCHAR(100) NOT NULL DEFAULT '',
		doc_valid_date         VARCHAR(20) NOT NULL DEFAULT '',
		doc_issue_country      VARCHAR(100) NOT NULL DEFAULT '',
		place_of_issue         VARCHAR(100) NOT NULL DEFAULT '',
		representation_office  VARCHAR(255) NOT NULL DEFAULT '',
		first_entry            VARCHAR(100) NOT NULL DEFAULT '',
		date_of_arrival        VARCHAR(20) NOT NULL DEFAULT '',
		means_of_transport     VARCHAR(100) NOT NULL DEFAULT '',
		date_of_departure      VARCHAR(20) NOT NULL DEFAULT '',
		face_photo_url         VARCHAR(512) NULL,
		passport_page          VARCHAR(512) NULL,
		letter                 VARCHAR(512) NULL,
		is_consent_provided    TINYINT(1) NOT NULL DEFAULT 0,
		created_at             DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at             DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_applications_user_created (user_id, created_at),
		CONSTRAINT fk_applications_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE SET NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates the portal tables when they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}
