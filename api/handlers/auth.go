package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/neurocare/portal-api/api"
	"github.com/neurocare/portal-api/config"
	"github.com/neurocare/portal-api/databases"
	"github.com/neurocare/portal-api/models"
)

// bcryptCost matches the cost factor the portal has always hashed with
const bcryptCost = 10

// Auth represents the signup/signin handler
type Auth struct {
	DDB    databases.DoctorDatabase
	PDB    databases.PatientDatabase
	Secret []byte
}

// SignupHandler registers a new doctor or patient account and returns a
// session token
func (a Auth) SignupHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req models.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	if req.Role != models.RoleDoctor && req.Role != models.RolePatient {
		config.ErrorStatus("invalid role", http.StatusBadRequest, w,
			fmt.Errorf("choose '%s' or '%s'", models.RoleDoctor, models.RolePatient))
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if err := validateSignup(req); err != nil {
		config.ErrorStatus("missing required fields", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	// Duplicate email check against the role-appropriate collection
	var count int64
	var err error
	if req.Role == models.RoleDoctor {
		count, err = a.DDB.CountDocuments(ctx, bson.M{"email": req.Email})
	} else {
		count, err = a.PDB.CountDocuments(ctx, bson.M{"email": req.Email})
	}
	if err != nil {
		config.ErrorStatus("failed to check existing users", http.StatusInternalServerError, w, err)
		return
	}
	if count > 0 {
		config.ErrorStatus("user already exists", http.StatusBadRequest, w,
			fmt.Errorf("email %s is taken", req.Email))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		config.ErrorStatus("failed to hash password", http.StatusInternalServerError, w, err)
		return
	}

	var id string
	if req.Role == models.RoleDoctor {
		oid, err := a.DDB.InsertOne(ctx, models.Doctor{
			Name:           req.Name,
			Specialization: req.Specialization,
			Hospital:       req.Hospital,
			Phone:          req.Phone,
			Email:          req.Email,
			Password:       string(hashed),
			Role:           models.RoleDoctor,
		})
		if err != nil {
			config.ErrorStatus("failed to register user", http.StatusInternalServerError, w, err)
			return
		}
		id = oid.Hex()
	} else {
		oid, err := a.PDB.InsertOne(ctx, models.Patient{
			Name:     req.Name,
			Age:      req.Age,
			Gender:   req.Gender,
			Phone:    req.Phone,
			Email:    req.Email,
			Address:  req.Address,
			Password: string(hashed),
			Role:     models.RolePatient,
		})
		if err != nil {
			config.ErrorStatus("failed to register user", http.StatusInternalServerError, w, err)
			return
		}
		id = oid.Hex()
	}

	token, err := api.IssueToken(a.Secret, id, req.Role)
	if err != nil {
		config.ErrorStatus("failed to generate token", http.StatusInternalServerError, w, err)
		return
	}

	zap.S().Infow("account created",
		"role", req.Role,
		"id", id,
	)

	go sendWelcomeEmail(req.Name, req.Email, req.Role)

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(models.AuthResponse{
		Message: fmt.Sprintf("Signup successful as %s", req.Role),
		Token:   token,
		Role:    req.Role,
		ID:      id,
	})
}

// SigninHandler authenticates an existing account. The account's role is
// resolved by looking the email up in the doctor collection first, then the
// patient collection; the email itself carries no role meaning.
func (a Auth) SigninHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req models.SigninRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		config.ErrorStatus("email and password required", http.StatusBadRequest, w,
			errors.New("missing credentials"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	var (
		id           string
		role         string
		passwordHash string
	)
	doctor, err := a.DDB.FindOne(ctx, bson.M{"email": req.Email})
	switch {
	case err == nil:
		id, role, passwordHash = doctor.ID.Hex(), models.RoleDoctor, doctor.Password
	case errors.Is(err, mongo.ErrNoDocuments):
		patient, perr := a.PDB.FindOne(ctx, bson.M{"email": req.Email})
		if errors.Is(perr, mongo.ErrNoDocuments) {
			config.ErrorStatus("user not found", http.StatusBadRequest, w,
				fmt.Errorf("no account for %s", req.Email))
			return
		}
		if perr != nil {
			config.ErrorStatus("failed to look up user", http.StatusInternalServerError, w, perr)
			return
		}
		id, role, passwordHash = patient.ID.Hex(), models.RolePatient, patient.Password
	default:
		config.ErrorStatus("failed to look up user", http.StatusInternalServerError, w, err)
		return
	}

	if req.Role != "" && req.Role != role {
		config.ErrorStatus("access denied", http.StatusForbidden, w,
			fmt.Errorf("expected role: %s", role))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(req.Password)); err != nil {
		config.ErrorStatus("invalid credentials", http.StatusBadRequest, w,
			errors.New("password mismatch"))
		return
	}

	token, err := api.IssueToken(a.Secret, id, role)
	if err != nil {
		config.ErrorStatus("failed to generate token", http.StatusInternalServerError, w, err)
		return
	}

	json.NewEncoder(w).Encode(models.AuthResponse{
		Message: fmt.Sprintf("Login successful as %s", role),
		Token:   token,
		Role:    role,
		ID:      id,
	})
}

func validateSignup(req models.SignupRequest) error {
	if req.Name == "" || req.Email == "" || req.Password == "" || req.Phone == "" {
		return errors.New("name, email, password and phone are required")
	}
	if req.Role == models.RoleDoctor {
		if req.Specialization == "" || req.Hospital == "" {
			return errors.New("specialization and hospital are required for doctors")
		}
		return nil
	}
	if req.Age < 0 {
		return errors.New("age must be zero or greater")
	}
	if req.Gender == "" || req.Address == "" {
		return errors.New("gender and address are required for patients")
	}
	return nil
}
