package urls

// Repository is the project home, shown in the terminal form header.
const Repository = "github.com/Ahlyab/flood-prediction"

// Troubleshooting covers service connection problems and common errors.
const Troubleshooting = "https://github.com/Ahlyab/flood-prediction#troubleshooting"

// ServiceSetup explains how to run the prediction service locally.
const ServiceSetup = "https://github.com/Ahlyab/flood-prediction#running-the-prediction-service"
